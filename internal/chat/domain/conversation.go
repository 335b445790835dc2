package domain

import "time"

// Conversation a chat between exactly one buyer and one seller.
// The participant set is immutable once created.
type Conversation struct {
	ID        string    `json:"id"`
	BuyerID   string    `json:"buyer_id"`
	SellerID  string    `json:"seller_id"`
	IsGroup   bool      `json:"is_group"`
	CreatedAt time.Time `json:"created_at"`
}

// RecipientKey the identity key of the participant opposite to the sender role
func (c *Conversation) RecipientKey(senderRole Role) string {
	if senderRole == RoleBuyer {
		return IdentityKey(RoleSeller, c.SellerID)
	}
	return IdentityKey(RoleBuyer, c.BuyerID)
}
