package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Distribution ──────────────────────────────────────────────────
	ErrUnknownBucket           ErrCode = "UNKNOWN_BUCKET"
	ErrDistributionNotComplete ErrCode = "DISTRIBUTION_NOT_COMPLETE"
	ErrDuplicateQuestionID     ErrCode = "DUPLICATE_QUESTION_ID"
	ErrInvalidConfiguration    ErrCode = "INVALID_CONFIGURATION"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Planning ──────────────────────────────────────────────────────
	ErrPlanFailed ErrCode = "PLAN_FAILED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."

	// ─── Distribution ──────────────────────────────────────────────────
	case ErrUnknownBucket:
		return "Distribusi memuat kategori yang tidak dikenal."
	case ErrDistributionNotComplete:
		return "Total persentase distribusi harus tepat 100."
	case ErrDuplicateQuestionID:
		return "Bank soal memuat ID soal yang sama lebih dari sekali."
	case ErrInvalidConfiguration:
		return "Konfigurasi ujian tidak valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."
	case ErrConflict:
		return "Konfigurasi telah diubah oleh pengguna lain. Muat ulang lalu coba lagi."

	// ─── Planning ──────────────────────────────────────────────────────
	case ErrPlanFailed:
		return "Tidak ada soal yang dapat dipilih untuk konfigurasi ini."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
