package models

import (
	"time"
)

var (
	ISO8601 = "2006-01-02T15:04:05-0700"
)

const (
	// redis key formats
	Redis_Key_StaffSession    = "lunchbot:staff-session:%s"     // token
	Redis_Key_PollStatusCache = "lunchbot:poll-status-cache:%s" // date
)

type Rest_StaffLoginRequest struct {
	Username string
	Password string
}

type Rest_StaffSession struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

type Rest_QRVerificationRequest struct {
	QRToken   string
	ScannedBy string
}

type Rest_ScanResult struct {
	Result         string // "ok", "invalid_format", "not_found", "exhausted"
	ScanNumber     int
	ScansRemaining int
	Username       string
	RealName       string
	PollDate       string
}

type Rest_SessionSummary struct {
	Status        string
	StartedBy     string
	EndedBy       string
	StartTime     time.Time
	EndTime       time.Time
	TotalExpected int
	TotalServed   int
}

type Rest_PollStatus struct {
	Date                string
	Status              string
	TotalResponses      int
	YesResponses        int
	AdditionalResponses int
	Session             Rest_SessionSummary
}
