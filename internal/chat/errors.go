package chat

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when a submission arrives while a dispatch or a text
// reveal is still in flight.
var ErrBusy = errors.New("a response is still being produced")

// ErrAuthMissing indicates the auth token or user profile is absent.
// Fatal for the turn, never retried.
type ErrAuthMissing struct {
	Missing string // "token" or "profile"
}

func (e *ErrAuthMissing) Error() string {
	return fmt.Sprintf("authentication %s not found", e.Missing)
}

// User-visible messages. Every failure surfaces as a retry invitation,
// never a raw error.
const (
	processingFailedText    = "Terjadi kesalahan saat memproses pesan Anda. Silakan coba lagi."
	readinessGreetingText   = "Halo! Selamat datang di Survei Wisatawan Nusantara. Apakah Anda siap untuk memulai survei?"
	readinessAckText        = "Terima kasih, kita akan mulai surveinya sekarang!"
	readinessRepromptText   = "Tidak masalah, silakan beri tahu jika Anda sudah siap untuk memulai survei."
	questionFetchFailedText = "Gagal mengambil pertanyaan survei. Silakan coba refresh halaman."
	qaErrorFallbackText     = "Terjadi kesalahan pada sistem tanya jawab. Silakan coba lagi."
)
