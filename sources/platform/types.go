package platform

type InstanceState = string

const (
	InstanceStarting InstanceState = "starting"
	InstanceStandby  InstanceState = "standby"
	InstanceActive   InstanceState = "active"
	InstanceStopping InstanceState = "stopping"
)

type ChargeState = string

const (
	ChargePending   ChargeState = "pending"
	ChargeCommitted ChargeState = "committed"
	ChargeReleased  ChargeState = "released"
)
