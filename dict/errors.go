package dict

import "errors"

// ErrShrinkBelowLive is the panic cause when Open.Rebuild is asked for
// fewer slots than there are live entries.
var ErrShrinkBelowLive = errors.New("dict: rebuild size below live entry count")
