package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/davicafu/carstream/internal/listing/domain"
	"github.com/davicafu/carstream/internal/listing/infra/inbound/events"
	"github.com/davicafu/carstream/internal/listing/infra/outbound/notify"
	"github.com/davicafu/carstream/pkg/utils"
)

// ListingHandler encapsula los endpoints HTTP del pipeline de anuncios.
type ListingHandler struct {
	submitter     events.Submitter
	deadLetters   domain.DeadLetterStore
	remover       domain.ListingRemover
	hub           *notify.Hub
	subscriberBuf int
}

// NewListingHandler crea un nuevo ListingHandler. subscriberBuf acota
// la cola de cada suscriptor del stream de notificaciones.
func NewListingHandler(submitter events.Submitter, deadLetters domain.DeadLetterStore, remover domain.ListingRemover, hub *notify.Hub, subscriberBuf int) *ListingHandler {
	return &ListingHandler{
		submitter:     submitter,
		deadLetters:   deadLetters,
		remover:       remover,
		hub:           hub,
		subscriberBuf: subscriberBuf,
	}
}

// ---------------- Handlers ----------------

// SubmitListing endpoint POST /listings
// Decodifica el envelope y lo entrega al pipeline. Un envelope
// malformado se rechaza aquí mismo, de forma síncrona.
func (h *ListingHandler) SubmitListing(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.SendBadRequest(c, "cannot read request body")
		return
	}

	evt, err := domain.DecodeListingEvent(payload)
	if err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	if err := h.submitter.Submit(c.Request.Context(), evt); err != nil {
		switch {
		case errors.Is(err, domain.ErrMalformedEvent):
			utils.SendBadRequest(c, err.Error())
		case errors.Is(err, domain.ErrPipelineClosed):
			utils.SendError(c, http.StatusServiceUnavailable, "pipeline is shutting down")
		default:
			utils.SendInternalServerError(c, err.Error())
		}
		return
	}

	// 202: aceptado para procesamiento asíncrono.
	utils.SendAccepted(c, gin.H{"registration": evt.Registration})
}

// StreamNotifications endpoint GET /notifications
// Stream SSE de anuncios tasados. Cada cliente recibe los eventos
// desde el momento de su suscripción; un cliente lento pierde los más
// antiguos de su cola, nunca frena al pipeline.
func (h *ListingHandler) StreamNotifications(c *gin.Context) {
	ch, unsubscribe := h.hub.Subscribe(h.subscriberBuf)
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case notification, ok := <-ch:
			if !ok {
				return
			}
			c.SSEvent("listing-priced", notification)
			c.Writer.Flush()
		}
	}
}

// DeleteListing endpoint DELETE /vehicles/:registration
// Operación idempotente de borrado del anuncio (la invoca el propio
// pipeline cuando el chequeo de estado devuelve STOLEN).
func (h *ListingHandler) DeleteListing(c *gin.Context) {
	registration := c.Param("registration")
	if registration == "" {
		utils.SendBadRequest(c, "missing registration")
		return
	}

	if err := h.remover.Remove(c.Request.Context(), registration); err != nil {
		utils.SendInternalServerError(c, err.Error())
		return
	}

	c.Status(http.StatusNoContent)
}

// ListDeadLetters endpoint GET /deadletters
// Visibilidad del área de retención para el operador.
func (h *ListingHandler) ListDeadLetters(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			utils.SendBadRequest(c, "invalid limit")
			return
		}
		limit = parsed
	}

	letters, err := h.deadLetters.List(c.Request.Context(), limit)
	if err != nil {
		utils.SendInternalServerError(c, err.Error())
		return
	}

	utils.SendSuccess(c, http.StatusOK, letters)
}
