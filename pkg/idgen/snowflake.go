package idgen

import "github.com/bwmarrin/snowflake"

var node *snowflake.Node

func init() {
	node, _ = snowflake.NewNode(1)
}

// GenID returns a time-ordered unique id, carried as event_id in published ledger events.
func GenID() int64 {
	return node.Generate().Int64()
}
