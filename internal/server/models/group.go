package models

import (
	pb "github.com/dmitrijs2005/gophgroups/internal/proto"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
)

// GroupRecord is a group as the server stores it: the encrypted state and
// every signed change since creation, ordered by revision.
type GroupRecord struct {
	PublicKey zkgroup.GroupPublicParams
	Group     *pb.Group
	Changes   []*pb.GroupChange
	// Revisions holds the revision of each entry in Changes.
	Revisions []uint32
}
