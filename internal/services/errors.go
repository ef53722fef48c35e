// Package services defines the business logic for support conversations,
// uploads, community chat, notifications, and settings. This file centralizes
// common service-level error values so that they can be consistently returned
// by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import (
	"errors"
	"fmt"
)

// Upload validation errors. These are returned before any storage call.
var (
	// ErrNotImage is returned when an image upload does not carry an image/* type.
	ErrNotImage = errors.New("file must be an image")

	// ErrAvatarTooLarge is returned for avatar uploads above MaxAvatarBytes.
	ErrAvatarTooLarge = errors.New("image too large; maximum size is 5MB")

	// ErrNotPDF is returned when a PDF upload is not application/pdf.
	ErrNotPDF = errors.New("file must be a PDF")

	// ErrPDFTooLarge is returned for PDFs above MaxPDFBytes.
	ErrPDFTooLarge = errors.New("PDF too large; maximum size is 10MB")

	// ErrInvalidFolder is returned for destination folders outside the known set.
	ErrInvalidFolder = errors.New("invalid upload folder")

	// ErrEmptyFile is returned for zero-length uploads.
	ErrEmptyFile = errors.New("file is empty")

	// ErrImageProcessing wraps transcoding failures.
	ErrImageProcessing = errors.New("image processing failed")
)

// Storage configuration errors. They reach callers wrapped in *ConfigError.
var (
	ErrBucketMissing     = errors.New("storage bucket missing")
	ErrBucketNotPublic   = errors.New("storage bucket not public")
	ErrStoragePermission = errors.New("storage permission denied")
	ErrMimeNotAllowed    = errors.New("bucket does not accept this file type")

	// ErrUploadFailed wraps any other provider failure.
	ErrUploadFailed = errors.New("upload failed")
)

// Settings errors.
var (
	// ErrSettingsTableMissing is returned by writes when support_settings does not exist.
	ErrSettingsTableMissing = errors.New("support_settings table is missing")

	// ErrInvalidTheme is returned for out-of-range HSL components or blank names.
	ErrInvalidTheme = errors.New("invalid theme")

	// ErrEmptySettingKey is returned when updating a setting without a key.
	ErrEmptySettingKey = errors.New("setting key is empty")
)

// Conversation and chat errors.
var (
	// ErrEmptyMessage is returned for blank message bodies.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong is returned when a body exceeds the configured rune limit.
	ErrMessageTooLong = errors.New("message too long")

	// ErrNoConversation is returned when an operation needs a selected thread.
	ErrNoConversation = errors.New("no conversation selected")

	// ErrMuted is matched by *MutedError.
	ErrMuted = errors.New("user is muted")

	// ErrStoreClosed is returned by a conversation store after Close.
	ErrStoreClosed = errors.New("conversation store closed")
)

// Notification errors.
var (
	// ErrMessageRequired is returned when a motivational message lacks a title or body.
	ErrMessageRequired = errors.New("title and body are required")

	// ErrLastMessage is returned when removing the only remaining motivational message.
	ErrLastMessage = errors.New("at least one message must remain")

	// ErrLibraryMessageNotFound is returned when removing an unknown id.
	ErrLibraryMessageNotFound = errors.New("message not found")

	// ErrNativeUnavailable is returned by native bridges with no listener.
	ErrNativeUnavailable = errors.New("native bridge unavailable")

	// ErrNotificationsUnsupported is returned by browser notifiers that cannot display.
	ErrNotificationsUnsupported = errors.New("notifications unsupported")
)

// ConfigError carries an operator-facing remediation message for a
// configuration problem. It matches its Err with errors.Is.
type ConfigError struct {
	Err error
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

func (e *ConfigError) Unwrap() error { return e.Err }

func configErr(err error, format string, args ...any) *ConfigError {
	return &ConfigError{Err: err, Msg: fmt.Sprintf(format, args...)}
}

// MutedError reports a community chat mute. Permanent mutes have no end.
type MutedError struct {
	DaysLeft  int
	Permanent bool
}

func (e *MutedError) Error() string {
	if e.Permanent {
		return "you are muted permanently"
	}
	if e.DaysLeft == 1 {
		return "you are muted for 1 more day"
	}
	return fmt.Sprintf("you are muted for %d more days", e.DaysLeft)
}

func (e *MutedError) Is(target error) bool { return target == ErrMuted }
