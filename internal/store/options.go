package store

// FindOptions tune point lookups.
type FindOptions struct {
	// IncludeDeleted makes lookups return soft-deleted rows as well.
	IncludeDeleted bool
}

// FindOption mutates FindOptions.
type FindOption func(*FindOptions)

// IncludeDeleted returns tombstoned records from point lookups instead of
// reporting them as not found.
func IncludeDeleted() FindOption {
	return func(o *FindOptions) {
		o.IncludeDeleted = true
	}
}

// ApplyFindOptions folds opts into a FindOptions value.
func ApplyFindOptions(opts ...FindOption) FindOptions {
	var o FindOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
