package sl

import "log/slog"

// Err returns a slog attribute for an error value.
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Module returns a slog attribute identifying the component writing the log.
func Module(name string) slog.Attr {
	return slog.Attr{
		Key:   "module",
		Value: slog.StringValue(name),
	}
}

// Secret returns a slog attribute with the value masked down to a short tail.
func Secret(key, value string) slog.Attr {
	masked := "***"
	if n := len(value); n > 4 {
		masked = "***" + value[n-4:]
	}
	return slog.Attr{
		Key:   key,
		Value: slog.StringValue(masked),
	}
}
