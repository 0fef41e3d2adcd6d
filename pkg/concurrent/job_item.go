package concurrent

// KVJobItem satu record yang mau ditulis ke kv store, Value belum di compress.
type KVJobItem struct {
	Key   string
	Value []byte
}

type JobI interface {
	KVJobItem
}

type JobFunc[T JobI, G any] func(job T) G
