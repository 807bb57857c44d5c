package model

import "time"

// UnknownUpdate is rendered when a cited source carries no partitions
const UnknownUpdate = "unknown"

// Partition is a stored chunk of an ingested document that contributed
// to an answer
type Partition struct {
	Index      int
	Text       string
	LastUpdate time.Time
}

// Source cites an ingested document that contributed to an answer
type Source struct {
	DocumentID DocumentID
	Name       string
	Link       string
	Partitions []Partition
}

// LastUpdate returns the update timestamp of the first partition,
// or UnknownUpdate when the source has none.
func (s *Source) LastUpdate() string {
	if len(s.Partitions) == 0 {
		return UnknownUpdate
	}
	return s.Partitions[0].LastUpdate.Format(time.RFC3339)
}

// Answer is the result of a single question
type Answer struct {
	Question        string
	Result          string
	RelevantSources []*Source
}
