// sntp-sync: SNTP клиент. Один обмен с сервером, якорь времени на монотонных часах устройства,
// периодическая синхронизация в режиме daemon.
//
// Использование:
//
//	sntp-sync -host time.example.org  # один обмен, вывод смещения и времени
//	sntp-sync -crosscheck  # то же + сверка с github.com/beevik/ntp
//	sntp-sync -run -config sntp-sync.yml  # daemon (primary → secondary серверы)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shiwa/timecard-mini/sntp-sync/internal/devclock"
	"github.com/shiwa/timecard-mini/sntp-sync/internal/logger"
	"github.com/shiwa/timecard-mini/sntp-sync/internal/sntp"
	"github.com/shiwa/timecard-mini/sntp-sync/internal/transport"
	"github.com/shiwa/timecard-mini/sntp-sync/pkg/clocksync"
	"github.com/shiwa/timecard-mini/sntp-sync/pkg/config"
)

func main() {
	run := flag.Bool("run", false, "запуск daemon: периодическая синхронизация")
	configPath := flag.String("config", "", "путь к YAML конфигу (по умолчанию sntp-sync.yml)")
	host := flag.String("host", "", "NTP сервер (по умолчанию первый из конфига)")
	timeout := flag.Duration("timeout", 0, "таймаут обмена (переопределяет config)")
	nameserver := flag.String("nameserver", "", "DNS сервер для разрешения имён (переопределяет config)")
	crosscheck := flag.Bool("crosscheck", false, "сверить смещение с github.com/beevik/ntp")
	quiet := flag.Bool("quiet", false, "меньше вывода")
	verbose := flag.Bool("verbose", false, "отладочный вывод")
	flag.Parse()

	logger.Quiet = *quiet
	logger.Verbose = *verbose

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *host != "" {
		cfg.ClockSync.PrimaryServers = []string{*host}
		cfg.ClockSync.SecondaryServers = nil
	}
	if *timeout > 0 {
		cfg.ClockSync.Timeout = timeout.String()
	}
	if *nameserver != "" {
		cfg.Resolver.Nameserver = *nameserver
	}

	if *run {
		runDaemonWithShutdown(cfg, *quiet)
		return
	}
	if err := queryOnce(cfg, *crosscheck); err != nil {
		log.Fatalf("%v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	explicit := path != ""
	if !explicit {
		path = "sntp-sync.yml"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) && !explicit {
		return config.Default(), nil
	}
	return config.Load(path)
}

func queryOnce(cfg *config.Config, crosscheck bool) error {
	hosts := cfg.ClockSync.Hosts()
	host := hosts[0]
	timeout := config.ParseDuration(cfg.ClockSync.Timeout, 6*time.Second)

	var resolver transport.Resolver = transport.SystemResolver{Timeout: config.ParseDuration(cfg.Resolver.Timeout, 0)}
	if cfg.Resolver.Nameserver != "" {
		resolver = transport.NewDNSResolver(cfg.Resolver.Nameserver, config.ParseDuration(cfg.Resolver.Timeout, 0))
	}
	client := sntp.NewClient(devclock.System{}, resolver, transport.UDPFactory{})

	resp, err := client.RequestTime(host, timeout)
	if err != nil {
		var se *sntp.Error
		if errors.As(err, &se) && se.Timeout() {
			return fmt.Errorf("%s: no reply within %v", host, timeout)
		}
		return err
	}
	now := resp.CurrentTime()
	fmt.Printf("server:  %s\n", host)
	fmt.Printf("offset:  %dms\n", resp.OffsetMs())
	fmt.Printf("time:    %s\n", now.Format(time.RFC3339Nano))
	fmt.Printf("anchor:  wall=%dms monotonic=%dms\n", resp.DeviceWallMs(), resp.DeviceMonotonicMs())

	if crosscheck {
		return crossCheck(host, timeout, resp.OffsetMs())
	}
	return nil
}

// runDaemonWithShutdown запускает clocksync.RunDaemon; по SIGINT/SIGTERM контекст отменяется.
func runDaemonWithShutdown(cfg *config.Config, quiet bool) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("получен сигнал %v, завершение...", sig)
		cancel()
	}()

	if err := clocksync.RunDaemon(ctx, cfg, quiet); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
