package artifact

// Record is the serialized form of a Descriptor used by the state stores and
// the admin API. Unknown JSON fields are ignored on decode.
type Record struct {
	Name        string `json:"name"`
	Timestamp   int64  `json:"timestamp"`
	APILevel    int    `json:"api_level"`
	DownloadURL string `json:"download_url"`
	Checksum    string `json:"checksum"`
	Kind        Kind   `json:"kind"`
}

// Record returns the serializable form of d.
func (d Descriptor) Record() Record {
	return Record{
		Name:        d.name,
		Timestamp:   d.timestamp,
		APILevel:    d.apiLevel,
		DownloadURL: d.downloadURL,
		Checksum:    d.checksum,
		Kind:        d.kind,
	}
}

// FromRecord validates a record and converts it back into a Descriptor.
func FromRecord(r Record) (Descriptor, error) {
	return New(r.Name, r.Timestamp, r.APILevel, r.DownloadURL, r.Checksum, r.Kind)
}

// Records converts a descriptor list into its serializable form.
func Records(list []Descriptor) []Record {
	out := make([]Record, 0, len(list))
	for _, d := range list {
		out = append(out, d.Record())
	}
	return out
}
