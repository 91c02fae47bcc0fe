// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"perimeter/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	EventHandler       *handler.EventHandler
	ParticipantHandler *handler.ParticipantHandler
	PresenceHandler    *handler.PresenceHandler
	AlertHandler       *handler.AlertHandler
	CheckInHandler     *handler.CheckInHandler
	DeviceHandler      *handler.DeviceHandler
}

// router holds all the handlers that need to be registered.
type router struct {
	eventHandler       *handler.EventHandler
	participantHandler *handler.ParticipantHandler
	presenceHandler    *handler.PresenceHandler
	alertHandler       *handler.AlertHandler
	checkInHandler     *handler.CheckInHandler
	deviceHandler      *handler.DeviceHandler
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		eventHandler:       params.EventHandler,
		participantHandler: params.ParticipantHandler,
		presenceHandler:    params.PresenceHandler,
		alertHandler:       params.AlertHandler,
		checkInHandler:     params.CheckInHandler,
		deviceHandler:      params.DeviceHandler,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Event management routes
	eventGroup := e.Group("/events")
	{
		eventGroup.POST("", r.eventHandler.CreateEvent)
		eventGroup.GET("", r.eventHandler.ListEvents)
		eventGroup.GET("/:eventID", r.eventHandler.GetEvent)
		eventGroup.PATCH("/:eventID", r.eventHandler.UpdateEvent)
		eventGroup.PUT("/:eventID/geofence", r.eventHandler.UpdateGeofence)
		eventGroup.DELETE("/:eventID", r.eventHandler.DeleteEvent)
	}

	// Participant roster routes
	participantGroup := e.Group("/events/:eventID/participants")
	{
		participantGroup.POST("", r.participantHandler.RegisterParticipant)
		participantGroup.GET("", r.participantHandler.ListParticipants)
		participantGroup.GET("/:participantID", r.participantHandler.GetParticipant)
		participantGroup.POST("/:participantID/absent", r.participantHandler.MarkAbsent)
		participantGroup.DELETE("/:participantID/absent", r.participantHandler.ClearAbsent)
		participantGroup.DELETE("/:participantID", r.participantHandler.RemoveParticipant)
	}

	// Presence tracking routes
	{
		participantGroup.POST("/:participantID/samples", r.presenceHandler.IngestSample)
		participantGroup.GET("/:participantID/presence", r.presenceHandler.GetParticipantState)
		participantGroup.GET("/:participantID/presence/watch", r.presenceHandler.WatchParticipantState)
		e.GET("/events/:eventID/presence", r.presenceHandler.GetEventStates)
	}

	// Alert feed routes
	alertGroup := e.Group("/events/:eventID/alerts")
	{
		alertGroup.GET("", r.alertHandler.ListAlerts)
		alertGroup.GET("/unacknowledged", r.alertHandler.ListUnacknowledged)
		alertGroup.GET("/summary", r.alertHandler.GetSummary)
		alertGroup.POST("/:alertID/ack", r.alertHandler.AcknowledgeAlert)
	}

	// Check-in routes
	{
		participantGroup.GET("/:participantID/checkin-qr", r.checkInHandler.GetCheckInQR)
		e.POST("/checkin", r.checkInHandler.CheckIn)
	}

	// Device registration routes
	deviceGroup := e.Group("/participants/:participantID/devices")
	{
		deviceGroup.POST("", r.deviceHandler.RegisterDevice)
		deviceGroup.GET("", r.deviceHandler.GetParticipantDevices)
		deviceGroup.PUT("/:deviceID/fcm-token", r.deviceHandler.UpdateFCMToken)
		deviceGroup.DELETE("/:deviceID", r.deviceHandler.DeactivateDevice)
	}
}
