package main

const (
	exitSuccess       = 0
	exitCriticalError = 1
	exitUsageError    = 2
	exitLockBusy      = 76
	exitGuardDenied   = 77
	exitInterrupted   = 130
)
