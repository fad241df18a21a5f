package model

import (
	"strconv"
	"strings"
)

// OperationKind is the intent carried by a trigger event.
type OperationKind string

// Operation kinds.
const (
	OpInstall OperationKind = "install"
	OpUpdate  OperationKind = "update"
	OpRepair  OperationKind = "repair"
	OpPreload OperationKind = "preload"
)

// Kinds lists every operation kind in trigger order.
var Kinds = []OperationKind{OpInstall, OpUpdate, OpRepair, OpPreload}

// Bus topics outside the operation families.
const (
	TopicNotification  = "notification"
	TopicErrorDialog   = "error_dialog"
	TopicDialogDismiss = "dialog_dismiss"
)

// topicStem is the word used in bus topics. Installs travel as "download".
func (k OperationKind) topicStem() string {
	if k == OpInstall {
		return "download"
	}
	return string(k)
}

// StartTopic is the trigger topic, e.g. start_game_download.
func (k OperationKind) StartTopic() string { return "start_game_" + k.topicStem() }

// ProgressTopic is the progress topic, e.g. download_progress.
func (k OperationKind) ProgressTopic() string { return k.topicStem() + "_progress" }

// CompleteTopic is the completion topic, e.g. download_complete.
func (k OperationKind) CompleteTopic() string { return k.topicStem() + "_complete" }

// Valid reports whether k is one of the known kinds.
func (k OperationKind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// KindFromTopic maps a start_game_* topic back to its kind.
func KindFromTopic(topic string) (OperationKind, bool) {
	for _, k := range Kinds {
		if k.StartTopic() == topic {
			return k, true
		}
	}
	return "", false
}

// ParseKind accepts a kind name or its topic stem ("download").
func ParseKind(s string) (OperationKind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if string(k) == s || k.topicStem() == s {
			return k, true
		}
	}
	return "", false
}

// DownloadPayload is the body of every start_game_* event.
type DownloadPayload struct {
	Install  string  `json:"install"`
	Biz      string  `json:"biz"`
	Lang     string  `json:"lang"`
	Region   string  `json:"region"`
	IsLatest *string `json:"is_latest"`
}

// UseLatest reports whether the caller asked for the latest version.
func (p DownloadPayload) UseLatest() bool {
	if p.IsLatest == nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(*p.IsLatest)) {
	case "", "false", "0", "no":
		return false
	default:
		return true
	}
}

// ProgressPayload is published on *_progress topics. All counters travel as strings.
type ProgressPayload struct {
	Name     string `json:"name"`
	Progress string `json:"progress"`
	Total    string `json:"total"`
}

// NewProgressPayload formats counters for transport.
func NewProgressPayload(name string, current, total uint64) ProgressPayload {
	return ProgressPayload{
		Name:     name,
		Progress: strconv.FormatUint(current, 10),
		Total:    strconv.FormatUint(total, 10),
	}
}

// CompletePayload is published on *_complete topics.
type CompletePayload struct {
	Name string `json:"name,omitempty"`
}

// NotificationPayload is published when an operation succeeds.
type NotificationPayload struct {
	Body string `json:"body"`
}

// ErrorDialogPayload asks the UI to show a blocking error modal.
type ErrorDialogPayload struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// DialogDismissPayload answers an ErrorDialogPayload.
type DialogDismissPayload struct {
	ID string `json:"id"`
}
