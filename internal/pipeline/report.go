package pipeline

import "fmt"

// Report summarizes one run.
type Report struct {
	RunID    string `json:"run_id"`
	Inserted int    `json:"inserted"`
	Sent     int    `json:"sent"`
	Pending  int    `json:"pending"`
	Total    int    `json:"total"`
}

// Text renders the operator-facing summary.
func (r Report) Text() string {
	return fmt.Sprintf(
		"Inserted now: %d\nSent to server: %d\nPending: %d\nTotal rows: %d\n",
		r.Inserted, r.Sent, r.Pending, r.Total,
	)
}
