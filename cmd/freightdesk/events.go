package main

import (
	"github.com/sirupsen/logrus"

	"github.com/freightdesk/freightdesk/modules/rates/services"
	"github.com/freightdesk/freightdesk/pkg/eventbus"
)

func subscribeImportEvents(bus eventbus.EventBus, log *logrus.Logger) {
	bus.Subscribe(func(e *services.ImportStartedEvent) {
		log.WithFields(logrus.Fields{
			"job_id":     e.Job.ID,
			"partner_id": e.Job.PartnerID,
			"filename":   e.Job.Filename,
		}).Info("import started")
	})
	bus.Subscribe(func(e *services.ImportFinishedEvent) {
		log.WithFields(logrus.Fields{
			"job_id":  e.Job.ID,
			"status":  e.Job.Status,
			"rows":    e.Job.TotalRows,
			"success": e.Job.SuccessCount,
			"errors":  e.Job.ErrorCount,
		}).Info("import finished")
	})
}
