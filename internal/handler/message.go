// Package handler contains HTTP handlers for the Cloche marketplace API.
//
// This file implements conversation and messaging handlers for both sides of
// the marketplace.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/clochehq/cloche/internal/service"
)

// =============================================================================
// Handler Configuration
// =============================================================================

// MessageHandler handles conversation and message HTTP requests.
type MessageHandler struct {
	conversations service.ConversationService
	messages      service.MessageService
	logger        *slog.Logger
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(
	conversations service.ConversationService,
	messages service.MessageService,
	logger *slog.Logger,
) *MessageHandler {
	return &MessageHandler{
		conversations: conversations,
		messages:      messages,
		logger:        logger,
	}
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers all messaging routes with the provided mux.
//
// Routes:
// - POST /api/messages/customer/conversation                 -> StartConversation
// - GET  /api/messages/customer/conversations?email=         -> CustomerInbox
// - GET  /api/messages/customer/conversation/{conversationID} -> CustomerThread
// - GET  /api/messages/conversations/{boutiqueID}            -> BoutiqueInbox
// - GET  /api/messages/conversation/{conversationID}         -> BoutiqueThread
// - POST /api/messages/send                                  -> Send
// - GET  /api/messages/details/{conversationID}              -> Details
// - PUT  /api/messages/status/{conversationID}               -> SetStatus
// - PUT  /api/messages/status                                -> SetStatusByBody
func (h *MessageHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/messages/customer/conversation", h.StartConversation)
	mux.HandleFunc("GET /api/messages/customer/conversations", h.CustomerInbox)
	mux.HandleFunc("GET /api/messages/customer/conversation/{conversationID}", h.CustomerThread)
	mux.HandleFunc("GET /api/messages/conversations/{boutiqueID}", h.BoutiqueInbox)
	mux.HandleFunc("GET /api/messages/conversation/{conversationID}", h.BoutiqueThread)
	mux.HandleFunc("POST /api/messages/send", h.Send)
	mux.HandleFunc("GET /api/messages/details/{conversationID}", h.Details)
	mux.HandleFunc("PUT /api/messages/status/{conversationID}", h.SetStatus)
	mux.HandleFunc("PUT /api/messages/status", h.SetStatusByBody)
}

// =============================================================================
// Conversations
// =============================================================================

type startConversationRequest struct {
	BoutiqueID    string `json:"boutique_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	ProductName   string `json:"product_name"`
}

// StartConversation finds or creates the thread for a customer contact.
// Responds 201 when a new thread was created, 200 when an existing one was
// reused.
func (h *MessageHandler) StartConversation(w http.ResponseWriter, r *http.Request) {
	var req startConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	boutiqueID, err := parseUUIDField(req.BoutiqueID, "boutique_id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	conv, created, err := h.conversations.FindOrCreate(r.Context(), domain.StartConversationParams{
		BoutiqueID:    boutiqueID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		ProductName:   req.ProductName,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, conv)
}

// CustomerInbox returns the customer's conversations across boutiques.
func (h *MessageHandler) CustomerInbox(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	summaries, err := h.conversations.ListForCustomer(r.Context(), email)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, summaries)
}

// CustomerThread returns a thread's messages for the customer and marks the
// boutique's messages read.
func (h *MessageHandler) CustomerThread(w http.ResponseWriter, r *http.Request) {
	h.thread(w, r, domain.SenderCustomer)
}

// BoutiqueInbox returns the boutique's conversations.
func (h *MessageHandler) BoutiqueInbox(w http.ResponseWriter, r *http.Request) {
	boutiqueID, err := pathUUID(r, "boutiqueID")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	summaries, err := h.conversations.ListForBoutique(r.Context(), boutiqueID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, summaries)
}

// BoutiqueThread returns a thread's messages for the boutique and marks the
// customer's messages read.
func (h *MessageHandler) BoutiqueThread(w http.ResponseWriter, r *http.Request) {
	h.thread(w, r, domain.SenderBoutique)
}

func (h *MessageHandler) thread(w http.ResponseWriter, r *http.Request, viewer domain.SenderType) {
	conversationID, err := pathUUID(r, "conversationID")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	msgs, err := h.conversations.Messages(r.Context(), conversationID, viewer)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	respondJSON(w, http.StatusOK, msgs)
}

// Details returns a conversation's header fields.
func (h *MessageHandler) Details(w http.ResponseWriter, r *http.Request) {
	conversationID, err := pathUUID(r, "conversationID")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	conv, err := h.conversations.Get(r.Context(), conversationID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, conv)
}

// =============================================================================
// Messages
// =============================================================================

type sendMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	SenderType     string `json:"sender_type"`
	MessageText    string `json:"message_text"`
}

// Send appends a message to a conversation. Boutique sends are quota-gated.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	conversationID, err := parseUUIDField(req.ConversationID, "conversation_id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// An omitted sender_type means a boutique send, which keeps the quota
	// gate on the default path.
	sender := domain.SenderType(req.SenderType)
	if req.SenderType == "" {
		sender = domain.SenderBoutique
	}

	msg, err := h.messages.Send(r.Context(), conversationID, sender, req.MessageText)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

// =============================================================================
// Status
// =============================================================================

type setStatusRequest struct {
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"`
}

// SetStatus moves the conversation named in the path to a new status.
func (h *MessageHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	conversationID, err := pathUUID(r, "conversationID")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req setStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	h.setStatus(w, r, conversationID.String(), req.Status)
}

// SetStatusByBody moves the conversation named in the body to a new status.
func (h *MessageHandler) SetStatusByBody(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	h.setStatus(w, r, req.ConversationID, req.Status)
}

func (h *MessageHandler) setStatus(w http.ResponseWriter, r *http.Request, idStr, status string) {
	conversationID, err := parseUUIDField(idStr, "conversation_id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.conversations.SetStatus(r.Context(), conversationID, domain.ConversationStatus(status)); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": status})
}
