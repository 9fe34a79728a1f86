// Package audit exposes the document trail written by the sales services.
package audit

import "time"

// Entry is one recorded action: a conversion, a status change or a payment.
type Entry struct {
	ID         int64          `json:"id"`
	ActorID    int64          `json:"actor_id"`
	Action     string         `json:"action"`
	Entity     string         `json:"entity"`
	EntityID   string         `json:"entity_id"`
	Meta       map[string]any `json:"meta,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// TimelineFilters narrows the trail. Zero values mean no filtering.
type TimelineFilters struct {
	Entity   string
	Action   string
	ActorID  *int64
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// PagingInfo carries forward/backward page metadata.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result bundles one page of entries with its paging metadata.
type Result struct {
	Rows   []Entry    `json:"rows"`
	Paging PagingInfo `json:"paging"`
}
