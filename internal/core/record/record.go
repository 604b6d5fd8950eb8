package record

import (
	"fmt"
)

// Identity labels the telemetry stream of a single run. It is immutable
// after session creation and travels with every record so the collector
// can attribute messages that arrive on a shared port.
type Identity struct {
	Benchmark   string
	Header      string
	LogFileName string
}

// Kind is the line tag the collector dispatches on. The tag set mirrors
// what the server-side line parser recognizes.
type Kind string

const (
	KindHeader      Kind = "#HEADER"
	KindBegin       Kind = "#BEGIN"
	KindIteration   Kind = "#IT"
	KindErrorCount  Kind = "#SDC"
	KindInfoCount   Kind = "#CINF"
	KindErrorDetail Kind = "#ERR"
	KindInfoDetail  Kind = "#INF"
	KindAbort       Kind = "#ABORT"
	KindEnd         Kind = "#END"
)

// Record is one telemetry message bound for the collector. Only the
// fields relevant to its Kind are populated; EncodeLine picks the
// layout per kind.
type Record struct {
	Identity  Identity
	Kind      Kind
	Iteration uint64

	// Iteration timing, seconds. KernelTime is the last iteration,
	// AccTime the running sum.
	KernelTime float64
	AccTime    float64

	ErrorCount  uint64
	TotalErrors uint64
	InfoCount   uint64
	TotalInfos  uint64

	Detail string
}

// Header builds the identity announcement sent once when a transport opens.
func Header(id Identity) Record {
	return Record{Identity: id, Kind: KindHeader}
}

// Begin builds the session start marker sent right after the header.
func Begin(id Identity) Record {
	return Record{Identity: id, Kind: KindBegin}
}

// Iteration builds the end-of-iteration timing record.
func Iteration(id Identity, iter uint64, kernelTime, accTime float64) Record {
	return Record{
		Identity:   id,
		Kind:       KindIteration,
		Iteration:  iter,
		KernelTime: kernelTime,
		AccTime:    accTime,
	}
}

// ErrorCount builds an error tally report for the current iteration.
func ErrorCount(id Identity, iter uint64, kernelTime, accTime float64, count, total uint64) Record {
	return Record{
		Identity:    id,
		Kind:        KindErrorCount,
		Iteration:   iter,
		KernelTime:  kernelTime,
		AccTime:     accTime,
		ErrorCount:  count,
		TotalErrors: total,
	}
}

// InfoCount builds an informational tally report for the current iteration.
func InfoCount(id Identity, iter uint64, count, total uint64) Record {
	return Record{
		Identity:   id,
		Kind:       KindInfoCount,
		Iteration:  iter,
		InfoCount:  count,
		TotalInfos: total,
	}
}

// ErrorDetail builds a free-text error description record.
func ErrorDetail(id Identity, iter uint64, text string) Record {
	return Record{Identity: id, Kind: KindErrorDetail, Iteration: iter, Detail: text}
}

// InfoDetail builds a free-text informational record.
func InfoDetail(id Identity, iter uint64, text string) Record {
	return Record{Identity: id, Kind: KindInfoDetail, Iteration: iter, Detail: text}
}

// Abort builds the terminal abort notification. Sent best-effort; the
// process is expected to terminate right after.
func Abort(id Identity, reason string) Record {
	return Record{Identity: id, Kind: KindAbort, Detail: reason}
}

// End builds the clean session end marker.
func End(id Identity) Record {
	return Record{Identity: id, Kind: KindEnd}
}

// EncodeLine serializes the record as a single ASCII line. The first
// byte is the ECC flag ('1' when the device reports ECC enabled), ahead
// of the tag, matching what the collector strips before dispatching.
// Timing fields use %f so the collector's
// "{iter:d} KerTime:{ker_time:f} AccTime:{acc_time:f}" parse succeeds.
func (r Record) EncodeLine(eccEnabled bool) []byte {
	ecc := byte('0')
	if eccEnabled {
		ecc = '1'
	}

	var body string
	switch r.Kind {
	case KindHeader:
		body = fmt.Sprintf("benchmark:%s logname:%s header:%s",
			r.Identity.Benchmark, r.Identity.LogFileName, r.Identity.Header)
	case KindIteration:
		body = fmt.Sprintf("%d KerTime:%f AccTime:%f", r.Iteration, r.KernelTime, r.AccTime)
	case KindErrorCount:
		body = fmt.Sprintf("Ite:%d KerTime:%f AccTime:%f KerErr:%d AccErr:%d",
			r.Iteration, r.KernelTime, r.AccTime, r.ErrorCount, r.TotalErrors)
	case KindInfoCount:
		body = fmt.Sprintf("Ite:%d KerInf:%d AccInf:%d", r.Iteration, r.InfoCount, r.TotalInfos)
	case KindErrorDetail, KindInfoDetail, KindAbort:
		body = r.Detail
	case KindBegin, KindEnd:
		// Marker lines carry no body.
	}

	if body == "" {
		return []byte(fmt.Sprintf("%c%s", ecc, r.Kind))
	}
	return []byte(fmt.Sprintf("%c%s %s", ecc, r.Kind, body))
}
