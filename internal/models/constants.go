package models

const (
	UnknownStore = "Unknown Store"
	UnknownBrand = "Unknown Brand"

	// FilterAll disables filtering on a store or brand dimension.
	FilterAll = "all"

	OrderIDPrefix = "ORD-"

	// ExportTimeLayout is the timestamp layout used for exported rows.
	ExportTimeLayout = "2006-01-02 15:04:05"
)

type Stage string

const (
	StageCreated    Stage = "created"
	StageImported   Stage = "imported"
	StageAssigned   Stage = "assigned"
	StageConfirmed  Stage = "confirmed"
	StagePrinted    Stage = "printed"
	StageManifested Stage = "manifested"
	StageDelivered  Stage = "delivered"
)
