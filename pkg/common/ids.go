package common

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	idNode *snowflake.Node
	idOnce sync.Once
)

// NextID returns a process-wide monotonically increasing snowflake id.
// Used as the ordering-authoritative id for message log entries.
func NextID() int64 {
	idOnce.Do(func() {
		node, err := snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
		idNode = node
	})
	return idNode.Generate().Int64()
}
