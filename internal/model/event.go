package model

import "time"

type ChangeOp string

const (
	OpCreated ChangeOp = "created"
	OpUpdated ChangeOp = "updated"
	OpDeleted ChangeOp = "deleted"
)

// ChangeEvent describes a committed mutation of one record.
type ChangeEvent struct {
	Op   ChangeOp  `json:"op"`
	Kind Kind      `json:"kind"`
	ID   RecordID  `json:"id"`
	At   time.Time `json:"at"`
}
