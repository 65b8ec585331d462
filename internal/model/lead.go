package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Tier is the lead-quality classification of a conversation.
type Tier string

const (
	TierNotContacted Tier = "NOT_CONTACTED"
	TierMQL          Tier = "MQL"
	TierSQL          Tier = "SQL"
)

// ConversationState labels how a conversation ended.
type ConversationState string

const (
	StateActive       ConversationState = "Activa"
	StateClosedByUser ConversationState = "Cerrada por usuario"
	StateNoResponse   ConversationState = "Sin respuesta"
)

// ChatDuration is the span between the first and last message of a
// conversation. It renders as "N días, HH:MM:SS" or "HH:MM:SS".
type ChatDuration time.Duration

// String implements fmt.Stringer.
func (d ChatDuration) String() string {
	return FormatDuration(time.Duration(d))
}

// MarshalJSON renders the duration in its display form.
func (d ChatDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// FormatDuration renders d as days (when at least one) plus HH:MM:SS.
// Negative durations render as zero.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	rem := total % 86400
	h, m, s := rem/3600, (rem%3600)/60, rem%60
	if days > 0 {
		return fmt.Sprintf("%d días, %02d:%02d:%02d", days, h, m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Attribution holds the campaign fields projected from an attribution record.
// Missing values are always "", never absent.
type Attribution struct {
	UTMSource       string `json:"utm_source"`
	UTMMedium       string `json:"utm_medium"`
	UTMOrigen       string `json:"utm_origen"`
	ProgramaInteres string `json:"programa_interes"`
	Resolucion      string `json:"resolucion"`
}

// IsZero reports whether no attribution field is populated.
func (a Attribution) IsZero() bool {
	return a == Attribution{}
}

// ClassificationResult is produced once per conversation and never mutated
// after the batch returns it.
type ClassificationResult struct {
	ChatID              string            `json:"chat_id"`
	Telefono            string            `json:"telefono"`
	Clasificacion       Tier              `json:"clasificacion"`
	ScoreTotal          int               `json:"score_total"`
	ScoreMotivacion     int               `json:"score_motivacion"`
	ScorePago           int               `json:"score_pago"`
	ScoreComportamiento int               `json:"score_comportamiento"`
	RazonPrincipal      string            `json:"razon_principal"`
	SenalesClave        []string          `json:"señales_clave"`
	EstadoConversacion  ConversationState `json:"estado_conversacion"`
	DuracionChat        ChatDuration      `json:"duracion_chat"`
	MensajesUsuario     int               `json:"mensajes_usuario"`
	Attribution
}
