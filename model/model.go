package model

import (
	"fmt"
	"image"
	"runtime/debug"
)

type CustomError struct {
	Processor  string                 `json:"processor"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func (e CustomError) Error() string {
	return e.Message
}

func GenError(proc string, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	return CustomError{
		Processor:  proc,
		Inner:      err,
		Message:    fmt.Sprintf(messagef, args...),
		StackTrace: string(debug.Stack()),
		Misc:       misc,
	}
}

// Detection is one classified object instance produced by a single
// inference call. Detections are never persisted.
type Detection struct {
	ClassID    int             `json:"classId"`
	ClassName  string          `json:"className"`
	Rect       image.Rectangle `json:"rect"`
	Confidence float32         `json:"confidence"`
}

// Alert is the last alert emitted by a processing loop. A zero TS with an
// empty message means no alert has fired yet.
type Alert struct {
	Message string  `json:"message"`
	TS      float64 `json:"ts"`
}

// FrameStats is the process-wide statistics snapshot served by /stats.
// The JSON field names are part of the wire contract.
type FrameStats struct {
	FPS          float64        `json:"fps"`
	Counts       map[string]int `json:"counts"`
	LastUpdateTS float64        `json:"last_update_ts"`
	Alert        Alert          `json:"alert"`
}

type StreamStats struct {
	ID         string  `json:"id"`
	Frames     int     `json:"frames"`
	Chunks     int     `json:"chunks"`
	Detections int     `json:"detections"`
	Alerts     int     `json:"alerts"`
	Errors     int     `json:"errors"`
	Uptime     int64   `json:"uptime"`
	FPS        float64 `json:"fps"`
	Timestamp  int64   `json:"timestamp"`
}
