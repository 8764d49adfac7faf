package ticket

import "time"

// Ticket lifecycle states.
const (
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusError      = "error"
)

// Ticket is the metadata record for one uploaded receipt. It is keyed by
// the sanitized original filename and links that name to the current blob
// and extraction result in storage; re-uploading the same name swaps the
// keys rather than overwriting a file in place.
type Ticket struct {
	Name        string    `json:"name"`
	StorageKey  string    `json:"storage_key"`
	ResultKey   string    `json:"result_key,omitempty"`
	ContentType string    `json:"content_type"`
	Status      string    `json:"status"`
	JobName     string    `json:"job_name,omitempty"`
	Total       *float64  `json:"total,omitempty"`
	BatchID     string    `json:"batch_id,omitempty"`
	BatchSeq    int       `json:"batch_seq,omitempty"`
	BatchTotal  int       `json:"batch_total,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Classified reports whether an operator has filled in the job details.
func (t *Ticket) Classified() bool {
	return t.JobName != "" || t.Total != nil
}

// Batch identifies one upload submission; every file in the submission
// shares the batch ID and total.
type Batch struct {
	ID    string `json:"id"`
	Total int    `json:"total"`
}
