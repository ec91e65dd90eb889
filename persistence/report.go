package persistence

import (
	"github.com/c2h5oh/datasize"
)

// SizeReport is the dry-run result of walking an image's chunk plan without
// writing anything. Per-chunk sizes let a host decide whether to use v2
// compression before committing to an actual write.
type SizeReport struct {
	Version    uint32
	TotalBytes datasize.ByteSize
	Chunks     map[string]datasize.ByteSize
}

// SizeReportFor builds a SizeReport for img at the given version by
// constructing every chunk payload exactly as WriteImage would, without
// touching an io.Writer.
func SizeReportFor(img *Image, version uint32) SizeReport {
	headerSize := datasize.ByteSize(8 + 4)
	report := SizeReport{
		Version:    version,
		TotalBytes: headerSize,
		Chunks:     make(map[string]datasize.ByteSize),
	}

	for _, c := range chunkPlan(img) {
		payload := c.body
		if version == V2 {
			payload = compressPayload(c.body)
		}
		size := datasize.ByteSize(8 + len(payload)) // tag + length prefix + payload
		report.Chunks[c.tag] = size
		report.TotalBytes += size
	}
	return report
}

// String renders the total with datasize's ByteSize.String, which uses the
// largest unit that divides the size exactly (e.g. "128KB", or "1234B").
func (r SizeReport) String() string {
	return r.TotalBytes.String()
}
