package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/sentinel-labs/financial-sentinel/internal/config"
	"github.com/sentinel-labs/financial-sentinel/internal/monitoring"
)

// Service handles scheduling of monitoring cycles and history exports
type Service struct {
	config            *config.Config
	monitoringService *monitoring.Service
	cron              *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, monitoringService *monitoring.Service) *Service {
	return &Service{
		config:            cfg,
		monitoringService: monitoringService,
		cron:              cron.New(cron.WithSeconds()),
	}
}

// Start begins scheduled monitoring
func (s *Service) Start() error {
	interval := fmt.Sprintf("@every %s", s.config.MonitorInterval)

	_, err := s.cron.AddFunc(interval, func() {
		logrus.Info("Starting scheduled monitoring cycle")
		if err := s.monitoringService.RunMonitoring(); err != nil {
			logrus.Errorf("Scheduled monitoring cycle failed: %v", err)
		}
	})

	if err != nil {
		return err
	}

	// Persist an export snapshot hourly so history survives restarts.
	_, err = s.cron.AddFunc("0 0 * * * *", func() {
		filename, err := s.monitoringService.ExportHistory()
		if err != nil {
			logrus.Errorf("Scheduled history export failed: %v", err)
			return
		}
		if filename != "" {
			logrus.Infof("Stored scheduled history export %s", filename)
		}
	})

	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started (monitoring every %s, exports hourly)", s.config.MonitorInterval)
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}
