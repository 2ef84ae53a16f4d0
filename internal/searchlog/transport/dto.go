package transport

import "time"

type StatsRequest struct {
	Days  int `form:"days" validate:"omitempty,min=1,max=365"`
	Limit int `form:"limit" validate:"omitempty,min=1,max=50"`
}

type Bucket struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type StatsResponse struct {
	OK          bool      `json:"ok"`
	Since       time.Time `json:"since"`
	Total       int64     `json:"total"`
	ZeroResults int64     `json:"zeroResults"`
	Fractions   []Bucket  `json:"fractions"`
	Prefixes    []Bucket  `json:"prefixes"`
}
