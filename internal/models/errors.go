package models

import "errors"

var ErrUnknownMetric = errors.New("unknown metric")
