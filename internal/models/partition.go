package models

import "fmt"

// Partition identifies one unit of import work: a (test, domain, event)
// combination as defined by the vendor's question bank.
type Partition struct {
	TestID  int    `json:"test_id"`
	Domain  string `json:"domain"`
	EventID int    `json:"event_id"`
}

// Key renders the partition in the progress-file key format, e.g. "T2-H-99".
func (p Partition) Key() string {
	return fmt.Sprintf("T%d-%s-%d", p.TestID, p.Domain, p.EventID)
}

func (p Partition) String() string {
	return p.Key()
}
