package config

type WorkerKeyStruct struct {
	PersistPlansQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistPlansQueue: "persist_plans_queue",
}
