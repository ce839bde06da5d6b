// Package notifier is the outbound side of the messaging gateway.
//
// Every text the bot sends (command replies, due reminders, log lines for the
// operator chat) goes through Service.Send, which paces calls with a token
// bucket and delegates delivery to a transport.Adapter.
//
// # Events
//
// Each send publishes reminder.sent or reminder.send_failed on the event bus.
//
// # History
//
// A small in-memory history of recent sends is kept for debugging.
package notifier
