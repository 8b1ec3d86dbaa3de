package cmd

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
)

// osExit is replaced in tests.
var osExit = os.Exit

// ExitWithCode logs err with the foundry exit code metadata and exits.
// logger may be nil for failures before logging is initialized.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	if logger == nil {
		ExitWithCodeStderr(exitCode, msg, err)
		return
	}

	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		writeFatal(os.Stderr, msg, err)
		osExit(int(exitCode))
		return
	}

	fields := []zap.Field{
		zap.Int("exit_code", info.Code),
		zap.String("exit_name", info.Name),
		zap.String("exit_category", info.Category),
	}
	fields = append(fields, envelopeFields(err)...)
	logger.Error(msg, fields...)

	osExit(info.Code)
}

// ExitWithCodeStderr writes the failure to stderr and exits. Use it before
// the logger exists.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	writeFatal(os.Stderr, msg, err)

	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		osExit(int(exitCode))
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
	osExit(info.Code)
}

// envelopeFields flattens an ErrorEnvelope into log fields, logging the
// wrapped cause in place of the envelope itself.
func envelopeFields(err error) []zap.Field {
	var envelope *errors.ErrorEnvelope
	if !stderrors.As(err, &envelope) || envelope == nil {
		if err == nil {
			return nil
		}
		return []zap.Field{zap.Error(err)}
	}

	fields := []zap.Field{
		zap.String("error_code", envelope.Code),
		zap.String("error_message", envelope.Message),
	}
	if envelope.CorrelationID != "" {
		fields = append(fields, zap.String("correlation_id", envelope.CorrelationID))
	}
	if envelope.Context != nil {
		fields = append(fields, zap.Any("error_context", envelope.Context))
	}
	if cause := envelopeCause(envelope); cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	return fields
}

func envelopeCause(envelope *errors.ErrorEnvelope) error {
	if envelope == nil || envelope.Original == nil {
		return nil
	}
	if cause, ok := envelope.Original.(error); ok {
		return cause
	}
	return nil
}

func writeFatal(w io.Writer, msg string, err error) {
	var envelope *errors.ErrorEnvelope
	switch {
	case err == nil:
		_, _ = fmt.Fprintf(w, "FATAL: %s\n", msg)
	case stderrors.As(err, &envelope) && envelope != nil:
		_, _ = fmt.Fprintf(w, "FATAL: %s [%s]: %s\n", msg, envelope.Code, envelope.Message)
		if cause := envelopeCause(envelope); cause != nil {
			_, _ = fmt.Fprintf(w, "Underlying error: %v\n", cause)
		}
	default:
		_, _ = fmt.Fprintf(w, "FATAL: %s: %v\n", msg, err)
	}
}
