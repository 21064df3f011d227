package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo pairs an error code with a message safe to show a user.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError maps persistence and network errors to a code and a message
// that hides driver details. context names the operation, e.g. "create order".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Something went wrong"}
	}

	errStr := err.Error()
	errLower := strings.ToLower(errStr)

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrorInfo{Code: ResourceNotFound, Message: getNotFoundMessage(context)}
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(errLower, "duplicate key"),
		strings.Contains(errLower, "unique constraint"):
		return parseDuplicateKeyError(errLower)
	case errors.Is(err, gorm.ErrForeignKeyViolated),
		strings.Contains(errLower, "foreign key constraint"):
		return parseForeignKeyError(errLower)
	case strings.Contains(errLower, "not-null constraint"),
		strings.Contains(errLower, "not null constraint"):
		return parseNotNullError(errLower)
	case strings.Contains(errLower, "connection refused"),
		strings.Contains(errLower, "no such host"),
		strings.Contains(errLower, "timeout"):
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "A dependent service is unreachable. Please try again later",
		}
	}

	return ErrorInfo{Code: InternalServerError, Message: getDefaultErrorMessage(context)}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "phone"):
		return ErrorInfo{Code: AuthPhoneAlreadyExists, Message: "Phone number already registered"}
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "Email already registered"}
	case strings.Contains(errLower, "idx_cart_user_item"):
		return ErrorInfo{Code: ResourceConflict, Message: "Item is already in the cart"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "Record already exists"}
}

func parseForeignKeyError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "still referenced") {
		return ErrorInfo{Code: ResourceConflict, Message: "Record is still referenced and cannot be deleted"}
	}
	if strings.Contains(errLower, "user_id") || strings.Contains(errLower, "fk_") {
		return ErrorInfo{Code: ResourceNotFound, Message: "Referenced user does not exist"}
	}
	return ErrorInfo{Code: ResourceNotFound, Message: "Referenced record does not exist"}
}

func parseNotNullError(errLower string) ErrorInfo {
	for _, field := range []string{"phone", "email", "full_name", "delivery_location", "payment_mode"} {
		if strings.Contains(errLower, field) {
			return ErrorInfo{Code: ValidationRequired, Message: field + " is required"}
		}
	}
	return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "order"):
		return "Order not found"
	case strings.Contains(contextLower, "cart"):
		return "Cart item not found"
	case strings.Contains(contextLower, "address"):
		return "Address not found"
	case strings.Contains(contextLower, "user"):
		return "User not found"
	case strings.Contains(contextLower, "service"), strings.Contains(contextLower, "menu"), strings.Contains(contextLower, "catalog"):
		return "Item not found"
	}
	return "Requested record not found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "create"), strings.Contains(contextLower, "register"):
		return "Failed to save. Please try again later"
	case strings.Contains(contextLower, "update"):
		return "Failed to update. Please try again later"
	case strings.Contains(contextLower, "delete"):
		return "Failed to delete. Please try again later"
	case strings.Contains(contextLower, "checkout"):
		return "Failed to place order. Your cart is unchanged"
	}
	return "Something went wrong. Please try again later"
}

// ParseAndRespond parses err and writes the envelope with statusCode.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
