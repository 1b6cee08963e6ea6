package mongo

const (
	store     = "store"
	blobTable = "blob"
)

var indexData = []IndexData{
	newIndexData(blobTable, "key", true)}
