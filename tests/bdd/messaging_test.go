package bdd

import "github.com/cucumber/godog"

// godog run ./tests/bdd/featureFiles/chat_messaging.feature
// Feature: Buyer seller messaging
//   In order to negotiate listings
//   As buyers and sellers of the marketplace
//   I want realtime delivery, unseen counters and durable history

//   Background:
//     Given buyer "u1" is connected as "buyer_u1"
//     And seller "s1" is connected as "seller_s1"
//     And a conversation exists between "u1" and "s1"

//   Scenario: Deliver a message to the online recipient
//     When "buyer_u1" sends "is this still available?" in the conversation
//     Then "seller_s1" receives a NEW_MESSAGE push with "is this still available?"
//     And "buyer_u1" receives the same message as an echo

//   Scenario: Count unseen messages for an offline recipient
//     Given "seller_s1" disconnects
//     When "buyer_u1" sends 3 messages in the conversation
//     Then the unseen counter of "seller_s1" for the conversation is 3

//   Scenario: Mark a conversation as seen
//     Given the unseen counter of "seller_s1" for the conversation is 3
//     When "seller_s1" marks the conversation as seen
//     Then the unseen counter of "seller_s1" for the conversation is 0

func isConnectedAs(arg1, arg2 string) error {
	return godog.ErrPending
}

func aConversationExistsBetween(arg1, arg2 string) error {
	return godog.ErrPending
}

func sendsInTheConversation(arg1, arg2 string) error {
	return godog.ErrPending
}

func receivesANEWMESSAGEPushWith(arg1, arg2 string) error {
	return godog.ErrPending
}

func receivesTheSameMessageAsAnEcho(arg1 string) error {
	return godog.ErrPending
}

func disconnects(arg1 string) error {
	return godog.ErrPending
}

func sendsMessagesInTheConversation(arg1 string, arg2 int) error {
	return godog.ErrPending
}

func theUnseenCounterOfForTheConversationIs(arg1 string, arg2 int) error {
	return godog.ErrPending
}

func marksTheConversationAsSeen(arg1 string) error {
	return godog.ErrPending
}

func InitializeMessagingScenario(ctx *godog.ScenarioContext) {
	ctx.Step(`^(?:buyer|seller) "([^"]*)" is connected as "([^"]*)"$`, isConnectedAs)
	ctx.Step(`^a conversation exists between "([^"]*)" and "([^"]*)"$`, aConversationExistsBetween)
	ctx.Step(`^"([^"]*)" sends "([^"]*)" in the conversation$`, sendsInTheConversation)
	ctx.Step(`^"([^"]*)" receives a NEW_MESSAGE push with "([^"]*)"$`, receivesANEWMESSAGEPushWith)
	ctx.Step(`^"([^"]*)" receives the same message as an echo$`, receivesTheSameMessageAsAnEcho)
	ctx.Step(`^"([^"]*)" disconnects$`, disconnects)
	ctx.Step(`^"([^"]*)" sends (\d+) messages in the conversation$`, sendsMessagesInTheConversation)
	ctx.Step(`^the unseen counter of "([^"]*)" for the conversation is (\d+)$`, theUnseenCounterOfForTheConversationIs)
	ctx.Step(`^"([^"]*)" marks the conversation as seen$`, marksTheConversationAsSeen)
}
