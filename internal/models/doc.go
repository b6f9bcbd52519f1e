// Package models defines the core domain models for draftbid.
//
// # Models
//
//   - Room: one auction draft, with its turn pointer and lifecycle status
//   - Participant: a bidder with a budget and a turn position
//   - Item: a player up for auction, tagged with one of four categories
//   - Round: the timed bidding window for one item
//   - Bid: a participant's current offer in a round
//   - Outcome: the settled result of a round, kept as history
//
// # Design Principles
//
//  1. Use ID strings instead of pointers for relationships
//  2. Budgets and prices are whole credits (int)
//  3. Times that matter for ordering (round window, bid tie-breaks) are time.Time;
//     creation stamps are Unix seconds like the rest of the schema
//  4. Models carry no behavior beyond small helpers; rules live in package auction
package models
