// Package recency enforces minimum silence since the customer's last
// inbound message and a minimum gap between outbound follow-ups.
//
// Two distinct interaction floors apply: a short anti-ban floor below
// which sending would look automated, and a longer recommended-silence
// floor below which a send is still considered intrusive. Each floor
// blocks under its own reason code with its own retry instant.
package recency
