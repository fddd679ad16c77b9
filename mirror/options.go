package mirror

type syncOptions struct {
	excludes         []string
	deleteExtraneous bool
	dryRun           bool
}

type Option func(o *syncOptions)

// WithExcludes adds glob patterns matched against base names, path segments
// and slash-relative paths. Excluded entries are neither copied nor deleted.
func WithExcludes(patterns []string) Option {
	return func(o *syncOptions) {
		o.excludes = append(o.excludes, patterns...)
	}
}

// WithDeleteExtraneous removes destination entries absent from the source.
func WithDeleteExtraneous(delete bool) Option {
	return func(o *syncOptions) {
		o.deleteExtraneous = delete
	}
}

func WithDryRun(dryRun bool) Option {
	return func(o *syncOptions) {
		o.dryRun = dryRun
	}
}
