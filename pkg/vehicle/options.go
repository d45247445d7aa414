package vehicle

import "time"

type options struct {
	verify        *bool
	verifyDelay   *time.Duration
	force         bool
	extendShutoff bool
	extendDelay   *time.Duration
}

// Option customizes a command issued through [Doors] or [Engine]. Options that do not apply to a
// command are ignored.
type Option func(*options)

// WithVerify controls whether the command's effect is confirmed by refreshing the vehicle status.
// Door commands default to false; engine commands default to true.
func WithVerify(verify bool) Option {
	return func(o *options) { o.verify = &verify }
}

// WithVerifyDelay sets how long to wait before refreshing the vehicle status to verify a command.
func WithVerifyDelay(delay time.Duration) Option {
	return func(o *options) { o.verifyDelay = &delay }
}

// WithForce issues the command even if the vehicle already appears to be in the target state.
func WithForce(force bool) Option {
	return func(o *options) { o.force = force }
}

// WithExtendShutoff requests a shutoff extension after a remote start.
func WithExtendShutoff(extend bool) Option {
	return func(o *options) { o.extendShutoff = extend }
}

// WithExtendShutoffDelay sets how long to wait before requesting a shutoff extension.
func WithExtendShutoffDelay(delay time.Duration) Option {
	return func(o *options) { o.extendDelay = &delay }
}

type resolvedOptions struct {
	verify        bool
	verifyDelay   time.Duration
	force         bool
	extendShutoff bool
	extendDelay   time.Duration
}

func (v *Vehicle) resolve(defaultVerify bool, opts []Option) resolvedOptions {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	r := resolvedOptions{
		verify:        defaultVerify,
		verifyDelay:   v.VerifyDelay,
		force:         o.force,
		extendShutoff: o.extendShutoff,
		extendDelay:   v.ExtendShutoffDelay,
	}
	if o.verify != nil {
		r.verify = *o.verify
	}
	if o.verifyDelay != nil {
		r.verifyDelay = *o.verifyDelay
	}
	if o.extendDelay != nil {
		r.extendDelay = *o.extendDelay
	}
	return r
}
