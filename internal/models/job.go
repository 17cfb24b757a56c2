package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

type JobStatus string

const (
	JobNotStarted JobStatus = "NOT_STARTED"
	JobRunning    JobStatus = "RUNNING"
	JobSuccess    JobStatus = "SUCCESS"
	JobFailed     JobStatus = "FAILED"
)

// JobState is one of NotStarted, Running, Succeeded or Failed. The set is
// closed: only this package can add variants.
type JobState interface {
	Status() JobStatus
	isJobState()
}

type NotStarted struct{}

type Running struct{}

// Succeeded carries one chunk per audio slice the worker transcribed.
type Succeeded struct {
	Results []Chunk
}

// Failed carries the reason reported by the worker.
type Failed struct {
	Reason string
}

func (NotStarted) Status() JobStatus { return JobNotStarted }
func (Running) Status() JobStatus    { return JobRunning }
func (Succeeded) Status() JobStatus  { return JobSuccess }
func (Failed) Status() JobStatus     { return JobFailed }

func (NotStarted) isJobState() {}
func (Running) isJobState()    {}
func (Succeeded) isJobState()  {}
func (Failed) isJobState()     {}

// Job is the transcription lifecycle of a record. The zero value is NOT_STARTED.
type Job struct {
	State JobState
}

func NewJob(state JobState) Job {
	return Job{State: state}
}

// Current returns the state, treating an unset job as NOT_STARTED.
func (j Job) Current() JobState {
	if j.State == nil {
		return NotStarted{}
	}
	return j.State
}

func (j Job) Status() JobStatus {
	return j.Current().Status()
}

type jobJSON struct {
	Status  JobStatus `json:"status"`
	Results []Chunk   `json:"results,omitempty"`
	Reason  string    `json:"reason,omitempty"`
}

func (j Job) MarshalJSON() ([]byte, error) {
	var out jobJSON
	switch s := j.Current().(type) {
	case NotStarted, Running:
		out.Status = s.Status()
	case Succeeded:
		out.Status = JobSuccess
		out.Results = s.Results
		if out.Results == nil {
			out.Results = []Chunk{}
		}
	case Failed:
		out.Status = JobFailed
		out.Reason = s.Reason
	default:
		return nil, fmt.Errorf("unknown job state %T", s)
	}
	return json.Marshal(out)
}

func (j *Job) UnmarshalJSON(data []byte) error {
	var in jobJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Status {
	case JobNotStarted:
		j.State = NotStarted{}
	case JobRunning:
		j.State = Running{}
	case JobSuccess:
		j.State = Succeeded{Results: in.Results}
	case JobFailed:
		j.State = Failed{Reason: in.Reason}
	default:
		return fmt.Errorf("unknown job status %q", in.Status)
	}
	return nil
}

// Value stores the job as JSONB.
func (j Job) Value() (driver.Value, error) {
	return j.MarshalJSON()
}

func (j *Job) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		j.State = NotStarted{}
		return nil
	case []byte:
		return j.UnmarshalJSON(v)
	case string:
		return j.UnmarshalJSON([]byte(v))
	default:
		return errors.New("job: unsupported column type")
	}
}
