package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testIdentity() Identity {
	return Identity{Benchmark: "cuda_lava", Header: "size:1024 streams:8", LogFileName: "/var/rad/log/x.log"}
}

func TestEncodeLine_TagFormats(t *testing.T) {
	id := testIdentity()

	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{
			name: "Header",
			rec:  Header(id),
			want: "0#HEADER benchmark:cuda_lava logname:/var/rad/log/x.log header:size:1024 streams:8",
		},
		{
			name: "Begin_NoBody",
			rec:  Begin(id),
			want: "0#BEGIN",
		},
		{
			name: "Iteration_MatchesCollectorParseFormat",
			rec:  Iteration(id, 7, 0.25, 3.5),
			want: "0#IT 7 KerTime:0.250000 AccTime:3.500000",
		},
		{
			name: "ErrorCount",
			rec:  ErrorCount(id, 7, 0.25, 3.5, 2, 9),
			want: "0#SDC Ite:7 KerTime:0.250000 AccTime:3.500000 KerErr:2 AccErr:9",
		},
		{
			name: "InfoCount",
			rec:  InfoCount(id, 7, 1, 4),
			want: "0#CINF Ite:7 KerInf:1 AccInf:4",
		},
		{
			name: "ErrorDetail",
			rec:  ErrorDetail(id, 7, "ecc fault at 0xdeadbeef"),
			want: "0#ERR ecc fault at 0xdeadbeef",
		},
		{
			name: "InfoDetail",
			rec:  InfoDetail(id, 7, "temperature 54C"),
			want: "0#INF temperature 54C",
		},
		{
			name: "Abort",
			rec:  Abort(id, "errors in consecutive iterations 6 and 7"),
			want: "0#ABORT errors in consecutive iterations 6 and 7",
		},
		{
			name: "End_NoBody",
			rec:  End(id),
			want: "0#END",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(tt.rec.EncodeLine(false)))
		})
	}
}

func TestEncodeLine_ECCFlagByte(t *testing.T) {
	line := Begin(testIdentity()).EncodeLine(true)
	assert.Equal(t, byte('1'), line[0], "ECC flag is the first byte, ahead of the tag")
}
