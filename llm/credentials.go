package llm

// Credentials maps credential names (OPENAI_API_KEY, DATABASE_URL, ...) to
// values. A run carries its own Credentials; nothing is written to the
// process environment, so concurrent runs with different keys are safe.
type Credentials map[string]string

// ResolveCredentials layers session input over the environment values.
// Empty session values do not mask environment values.
func ResolveCredentials(env, session map[string]string) Credentials {
	out := make(Credentials, len(env)+len(session))
	for k, v := range env {
		if v != "" {
			out[k] = v
		}
	}
	for k, v := range session {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Has reports whether name resolves to a non-empty value.
func (c Credentials) Has(name string) bool {
	return c[name] != ""
}
