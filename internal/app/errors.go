package service

import "errors"

var (
	// ErrNotAccepting is returned when a job is submitted to a service
	// that has not started or is shutting down.
	ErrNotAccepting = errors.New("service is not accepting jobs")

	// ErrDuplicateJob is returned when a job ID was already submitted.
	ErrDuplicateJob = errors.New("duplicate job")

	// ErrBackpressure is returned when the queue is full and the job
	// could not be enqueued.
	ErrBackpressure = errors.New("queue is full")

	// ErrJobNotFound is returned when no journal record exists for an ID.
	ErrJobNotFound = errors.New("job not found")
)
