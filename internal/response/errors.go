package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"
	ErrNotAttemptOwner   ErrCode = "NOT_ATTEMPT_OWNER"
	ErrNotEnrolled       ErrCode = "NOT_ENROLLED"
	ErrNotClassTeacher   ErrCode = "NOT_CLASS_TEACHER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrSessionNotFound ErrCode = "SESSION_NOT_FOUND"
	ErrAttemptNotFound ErrCode = "ATTEMPT_NOT_FOUND"
	ErrClassNotFound   ErrCode = "CLASS_NOT_FOUND"
	ErrConflict        ErrCode = "CONFLICT"

	// ─── Session & attempt rules ───────────────────────────────────────
	ErrSessionNotActive     ErrCode = "SESSION_NOT_ACTIVE"
	ErrClassInactive        ErrCode = "CLASS_INACTIVE"
	ErrNoQuestions          ErrCode = "NO_QUESTIONS"
	ErrAttemptLimitExceeded ErrCode = "ATTEMPT_LIMIT_EXCEEDED"
	ErrAlreadySubmitted     ErrCode = "ALREADY_SUBMITTED"
	ErrStartConflict        ErrCode = "START_CONFLICT"
	ErrSessionHasAttempts   ErrCode = "SESSION_HAS_ATTEMPTS"
	ErrDomainRule           ErrCode = "RULE_VIOLATION"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."
	case ErrTokenExpired:
		return "Token autentikasi telah kedaluwarsa."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Anda tidak memiliki izin untuk mengakses sumber daya ini."
	case ErrStudentAccessOnly:
		return "Sumber daya ini terbatas untuk siswa."
	case ErrTeacherAccessOnly:
		return "Sumber daya ini terbatas untuk guru dan administrator."
	case ErrNotAttemptOwner:
		return "Percobaan ujian ini bukan milik Anda."
	case ErrNotEnrolled:
		return "Anda tidak terdaftar di kelas ini."
	case ErrNotClassTeacher:
		return "Anda bukan pengajar kelas ini."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."
	case ErrSessionNotFound:
		return "Sesi ujian tidak ditemukan."
	case ErrAttemptNotFound:
		return "Percobaan ujian tidak ditemukan."
	case ErrClassNotFound:
		return "Kelas tidak ditemukan."
	case ErrConflict:
		return "Permintaan bertentangan dengan keadaan saat ini."

	// ─── Session & attempt rules ───────────────────────────────────────
	case ErrSessionNotActive:
		return "Sesi ujian tidak sedang berlangsung."
	case ErrClassInactive:
		return "Kelas ini tidak aktif."
	case ErrNoQuestions:
		return "Ujian ini tidak memiliki pertanyaan."
	case ErrAttemptLimitExceeded:
		return "Batas jumlah percobaan ujian telah tercapai."
	case ErrAlreadySubmitted:
		return "Percobaan ujian ini sudah dikumpulkan."
	case ErrStartConflict:
		return "Percobaan ujian sedang dimulai dari permintaan lain. Silakan coba lagi."
	case ErrSessionHasAttempts:
		return "Ujian sesi tidak dapat diganti karena sudah ada percobaan."
	case ErrDomainRule:
		return "Tindakan ini tidak diperbolehkan."

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

// knownCode reports whether code has a dedicated message.
func knownCode(code ErrCode) bool {
	switch code {
	case ErrTokenRequired, ErrTokenInvalid, ErrTokenExpired,
		ErrForbidden, ErrStudentAccessOnly, ErrTeacherAccessOnly,
		ErrNotAttemptOwner, ErrNotEnrolled, ErrNotClassTeacher,
		ErrValidation, ErrInvalidID, ErrInvalidPayload,
		ErrNotFound, ErrSessionNotFound, ErrAttemptNotFound, ErrClassNotFound, ErrConflict,
		ErrSessionNotActive, ErrClassInactive, ErrNoQuestions, ErrAttemptLimitExceeded,
		ErrAlreadySubmitted, ErrStartConflict, ErrSessionHasAttempts, ErrDomainRule,
		ErrRateLimitExceeded, ErrInternal:
		return true
	}
	return false
}
