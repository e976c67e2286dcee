package main

import (
	"fmt"
	"time"

	"github.com/beevik/ntp"
)

// crossCheck запрашивает тот же сервер через beevik/ntp и сравнивает смещения
func crossCheck(host string, timeout time.Duration, offsetMs int64) error {
	r, err := ntp.QueryWithOptions(host, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return fmt.Errorf("crosscheck %s: %w", host, err)
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("crosscheck %s: %w", host, err)
	}
	other := r.ClockOffset.Milliseconds()
	fmt.Printf("beevik/ntp: offset=%dms rtt=%v stratum=%d\n", other, r.RTT, r.Stratum)
	fmt.Printf("difference: %dms\n", offsetMs-other)
	return nil
}
