package cli

import (
	"errors"
	"fmt"
	"strings"

	"wikisync/internal/config"
	"wikisync/internal/mediawiki"
	"wikisync/internal/state"
)

// Describe turns a run error into a message with actionable guidance for
// the errors a user can do something about. Other errors are returned as
// their plain text.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var transportErr *mediawiki.TransportError
	var apiErr *mediawiki.APIError
	var authErr *mediawiki.AuthError
	var validationErrs config.ValidationErrors

	switch {
	case errors.As(err, &validationErrs):
		lines := make([]string, 0, len(validationErrs))
		for _, ve := range validationErrs {
			lines = append(lines, "  - "+ve.Error())
		}
		return fmt.Sprintf(`Configuration is invalid:
%s

Fix the configuration file or pass the values as flags or WIKISYNC_* variables.`, strings.Join(lines, "\n"))

	case errors.Is(err, state.ErrNoWatermark):
		return `No watermark stored yet.

A first run needs a starting point. Either:
  - run 'wikisync watermark set <timestamp>' once, or
  - pass --since <timestamp> to this command.`

	case errors.As(err, &authErr):
		return fmt.Sprintf(`Login failed: %s

Verify the bot password (Special:BotPasswords) of the target account.
Bot usernames have the form User@BotName.`, strings.TrimPrefix(authErr.Error(), "login to "))

	case errors.As(err, &transportErr):
		return describeTransport(err, transportErr)

	case errors.As(err, &apiErr):
		return fmt.Sprintf("The wiki rejected %s: %s (%s)", apiErr.Action, apiErr.Info, apiErr.Code)
	}

	return err.Error()
}

func describeTransport(err error, e *mediawiki.TransportError) string {
	var hint string
	switch e.Kind {
	case mediawiki.TransportErrorTLS:
		hint = `The server's certificate could not be verified.
Check the API URL, and the proxy setting if one is configured.`
	case mediawiki.TransportErrorDNS:
		hint = "The host name could not be resolved. Check the API URL."
	case mediawiki.TransportErrorTimeout:
		hint = "The wiki did not answer in time. Try again or raise 'timeout'."
	case mediawiki.TransportErrorNetwork:
		hint = "The wiki could not be reached. Check the API URL and the network or proxy."
	case mediawiki.TransportErrorStatus:
		hint = "The wiki answered with an HTTP error. Check that the URL points at api.php."
	case mediawiki.TransportErrorDecode:
		hint = "The answer was not an API response. Check that the URL points at api.php."
	default:
		return err.Error()
	}
	return fmt.Sprintf("%s\n\n%s", err.Error(), hint)
}
