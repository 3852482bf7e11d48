package scoring

// DefaultRubric is the system prompt sent with every thread. It can be replaced through
// the rubric file in config.
const DefaultRubric = `Assess the quality of a customer support dialogue.

The dialogue is a JSON list of messages with fields:
- content: message text (null when the message had no usable text)
- role: agent, customer or system
- sent_at: time the message was sent
- content_type: chat or email

Identify the key moments: greeting, problem discovery, solution, closing.

Difficulty level:
- Hard: IT issues, payments, refunds, questions where the agent promises to come back with an answer
- Medium: gift activation, requests from employees, access requests
- Easy: everything else

Time spent: minutes from the customer's question to the message asking the customer to confirm the
issue is resolved.

Solution: whether the customer's issue was solved (yes/no), with a list of facts describing the
question and the offered solution, no subjective analysis. One question solved gives 5 points, an
unsolved question gives -5. Several questions give 2.5 points per question/solution pair.

Communication style: check the agent follows the company tone of voice (playful but not silly,
confident but not rude, smart but not a know-it-all, formal but not boring, expert but not
preachy). Flag missing personal address, forbidden phrases, missing politeness. Do not deduct
points for promotional inserts.

Start from 10 points and deduct:
- no solution: 5 points
- tone of voice not followed: 2 points
- first response later than 30 minutes: 2 points
- no invitation to an event or product: 1 point

Reply with a JSON object only:
` + "```json" + `
{
  "difficulty_level": "Easy|Medium|Hard",
  "time_spent": 0,
  "is_solved": true,
  "solution_comment": ["fact"],
  "solution_score": 0,
  "communication_style": "matches|does not match tone of voice",
  "communication_comment": "",
  "communication_score": 0,
  "total_score": 0,
  "improvement_recommendations": ["recommendation"]
}
` + "```"
