// Package node describes a process that serves an HTTP surface under a stable identity.
package node

import "github.com/gin-gonic/gin"

type Node interface {
	NodeID() string
	Kind() string
	// Ready reports whether the node may currently receive routed work.
	Ready() bool
	HTTPRouter() *gin.Engine
}
