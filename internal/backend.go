package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fanctld/fanctld/internal/api"
	"github.com/fanctld/fanctld/internal/arduino"
	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/fanctld/fanctld/internal/controller"
	"github.com/fanctld/fanctld/internal/fans"
	"github.com/fanctld/fanctld/internal/report"
	"github.com/fanctld/fanctld/internal/sensors"
	"github.com/fanctld/fanctld/internal/snapshot"
	"github.com/fanctld/fanctld/internal/statistics"
	"github.com/fanctld/fanctld/internal/telemetry"
	"github.com/fanctld/fanctld/internal/trigger"
	"github.com/fanctld/fanctld/internal/ui"
	"github.com/fanctld/fanctld/internal/util"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RunDaemon() {
	config := configuration.CurrentConfig

	if requiresRoot(config) && getProcessOwner() != "root" {
		ui.Fatal("Driving hwmon fans requires root permissions to modify fan speeds, please run fanctld as root")
	}

	if len(config.PidFile) > 0 {
		if err := util.WritePidFile(config.PidFile); err != nil {
			ui.Warning("Unable to write pid file %s: %v", config.PidFile, err)
		} else {
			defer func() {
				_ = os.Remove(config.PidFile)
			}()
		}
	}

	boards, sensorList, fanList := InitializeObjects()

	reporter := report.NewReporter(config.Report)
	monitor := trigger.NewMonitor(reporter)

	ctrl := controller.NewController(config, sensorList, fanList, boards, monitor, snapshot.Current)

	var history telemetry.Repository
	var historyTicks chan *snapshot.Tick
	if config.Telemetry.Enabled {
		repo, err := telemetry.NewRepository(config.Telemetry.DbPath)
		if err != nil {
			ui.Fatal("Unable to open tick history: %v", err)
		}
		history = repo
		if removed, err := history.Prune(config.Telemetry.Retention); err != nil {
			ui.Warning("Unable to prune tick history: %v", err)
		} else if removed > 0 {
			ui.Info("Pruned %d tick history rows older than %s", removed, config.Telemetry.Retention)
		}
		historyTicks = make(chan *snapshot.Tick, 16)
		ctrl.Sink = historyTicks
	}

	ctx, cancel := context.WithCancel(context.Background())

	var g run.Group
	{
		// === control loop
		g.Add(func() error {
			err := ctrl.Run(ctx)
			ui.Info("Controller stopped.")
			return err
		}, func(err error) {
			cancel()
		})
	}
	if config.Statistics.Enabled {
		// === prometheus exporter
		port := config.Statistics.Port
		if port <= 0 || port >= 65535 {
			port = 8083
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

		g.Add(func() error {
			ui.Info("Serving statistics on :%d/metrics", port)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}, func(err error) {
			timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer timeoutCancel()
			if err := server.Shutdown(timeoutCtx); err != nil {
				ui.Warning("Error stopping statistics server: %v", err)
			} else {
				ui.Info("Statistics server stopped.")
			}
		})
	}
	if config.Api.Enabled {
		// === rest api
		restServer := api.CreateRestService()

		g.Add(func() error {
			addr := fmt.Sprintf("%s:%d", config.Api.Host, config.Api.Port)
			ui.Info("Serving rest api on %s", addr)
			if err := restServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}, func(err error) {
			timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer timeoutCancel()
			if err := restServer.Shutdown(timeoutCtx); err != nil {
				ui.Warning("Error stopping rest api server: %v", err)
			} else {
				ui.Info("Rest api server stopped.")
			}
		})
	}
	if config.Profiling.Enabled {
		// === pprof
		profilingServer := api.CreateProfilingService()

		g.Add(func() error {
			addr := fmt.Sprintf("%s:%d", config.Profiling.Host, config.Profiling.Port)
			ui.Info("Serving profiling on %s", addr)
			if err := profilingServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}, func(err error) {
			timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer timeoutCancel()
			if err := profilingServer.Shutdown(timeoutCtx); err != nil {
				ui.Warning("Error stopping profiling server: %v", err)
			}
		})
	}
	if history != nil {
		// === tick history writer
		g.Add(func() error {
			telemetry.Drain(ctx, history, historyTicks)
			ui.Info("Tick history writer stopped.")
			return nil
		}, func(err error) {
			if err := history.Close(); err != nil {
				ui.Warning("Error closing tick history: %v", err)
			}
		})
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			<-sig
			ui.Info("Received termination signal, exiting...")
			return nil
		}, func(err error) {
			cancel()
		})
	}

	if err := g.Run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	} else {
		ui.Info("Done.")
		os.Exit(0)
	}
}

// InitializeObjects builds the boards, sensors and fans from the current
// configuration and registers the metric collectors.
func InitializeObjects() ([]arduino.Link, []sensors.Sensor, []fans.Fan) {
	var boards []arduino.Link
	for _, config := range configuration.CurrentConfig.Arduinos {
		link := arduino.NewConnection(config)
		arduino.ConnectionMap.Set(config.ID, link)
		boards = append(boards, link)
	}

	var sensorList []sensors.Sensor
	for _, config := range configuration.CurrentConfig.Sensors {
		sensor, err := sensors.NewSensor(config)
		if err != nil {
			ui.Fatal("Unable to process sensor configuration: %s", config.ID)
		}
		sensorList = append(sensorList, sensor)
		sensors.SensorMap.Set(config.ID, sensor)
	}

	var fanList []fans.Fan
	for _, config := range configuration.CurrentConfig.Fans {
		fan, err := fans.NewFan(config)
		if err != nil {
			ui.Fatal("Unable to process fan configuration: %s: %v", config.ID, err)
		}
		fanList = append(fanList, fan)
		fans.FanMap.Set(config.ID, fan)
	}

	if len(fanList) == 0 {
		ui.Fatal("No valid fan configurations, exiting.")
	}

	statistics.Register(statistics.NewSensorCollector(snapshot.Current))
	statistics.Register(statistics.NewFanCollector(snapshot.Current))
	statistics.Register(statistics.NewArduinoCollector(snapshot.Current))
	statistics.Register(statistics.NewDaemonCollector(snapshot.Current))

	return boards, sensorList, fanList
}

// requiresRoot reports whether any configured fan writes to sysfs. Serial
// boards only need access to their tty device.
func requiresRoot(config configuration.Configuration) bool {
	for _, fanConfig := range config.Fans {
		if fanConfig.File != nil {
			return true
		}
	}
	return false
}

func getProcessOwner() string {
	stdout, err := exec.Command("ps", "-o", "user=", "-p", strconv.Itoa(os.Getpid())).Output()
	if err != nil {
		ui.Fatal("Error checking process owner: %v", err)
	}
	return strings.TrimSpace(string(stdout))
}
