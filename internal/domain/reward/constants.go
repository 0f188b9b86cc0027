package reward

const (
	PositionManager = "Manager"
	PositionCEO     = "CEO"

	KindEmployee = "employee"
	KindManager  = "manager"

	DefaultWorkers = 4
)
