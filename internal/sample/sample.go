// Package sample provides the demo decks and cards used to seed an empty store.
package sample

import (
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/due"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Data returns the sample decks and cards with due and review dates placed
// relative to now, each at midnight.
func Data(now time.Time) ([]domain.Deck, []domain.Card) {
	rel := func(days int) time.Time { return due.AddDays(now, days) }
	relPtr := func(days int) *time.Time {
		t := rel(days)
		return &t
	}
	score := func(s domain.Score) *domain.Score { return &s }
	parent := func(id string) *string { return &id }

	decks := []domain.Deck{
		{ID: "deck-1", Name: "JavaScript", CreatedAt: date(2025, 1, 1), UpdatedAt: date(2025, 1, 15)},
		{ID: "deck-2", Name: "React Fundamentals", ParentID: parent("deck-1"), CreatedAt: date(2025, 1, 5), UpdatedAt: date(2025, 1, 10)},
		{ID: "deck-3", Name: "TypeScript", Position: 1, CreatedAt: date(2025, 1, 2), UpdatedAt: date(2025, 1, 12)},
		{ID: "deck-4", Name: "Advanced Types", ParentID: parent("deck-3"), CreatedAt: date(2025, 1, 8), UpdatedAt: date(2025, 1, 14)},
		{ID: "deck-5", Name: "Python", Position: 2, CreatedAt: date(2025, 1, 3), UpdatedAt: date(2025, 1, 16)},
	}

	cards := []domain.Card{
		{
			ID:    "card-1",
			Title: "What is a closure?",
			Content: "A **closure** is a function that has access to variables from its outer (enclosing) scope, even after the outer function has returned.\n\n" +
				"```javascript\nfunction outer() {\n  const message = \"Hello\";\n  return function inner() {\n    console.log(message);\n  };\n}\n\nconst greet = outer();\ngreet(); // \"Hello\"\n```\n\n" +
				"Key points:\n- Closures \"remember\" the environment where they were created\n- Used for data privacy and factory functions\n- Common in event handlers and callbacks",
			DeckID:           "deck-1",
			NextDueDate:      rel(0),
			LastReviewedDate: relPtr(-3),
			LastScore:        score(domain.Easy),
			CreatedAt:        date(2025, 1, 5),
			UpdatedAt:        date(2025, 1, 19),
		},
		{
			ID:    "card-2",
			Title: "useState Hook",
			Content: "`useState` is a React Hook that lets you add state to functional components.\n\n" +
				"```tsx\nconst [count, setCount] = useState(0);\n\n// Update state\nsetCount(count + 1);\n\n// Or with updater function\nsetCount(prev => prev + 1);\n```\n\n" +
				"Returns an array with:\n1. Current state value\n2. Setter function to update state",
			DeckID:           "deck-2",
			NextDueDate:      rel(0),
			LastReviewedDate: relPtr(-1),
			LastScore:        score(domain.Perfect),
			CreatedAt:        date(2025, 1, 6),
			UpdatedAt:        date(2025, 1, 21),
		},
		{
			ID:    "card-3",
			Title: "What is the event loop?",
			Content: "The **event loop** is JavaScript's mechanism for handling asynchronous operations.\n\n" +
				"Components:\n1. **Call Stack** - Executes synchronous code\n2. **Task Queue** - Holds callbacks (setTimeout, events)\n3. **Microtask Queue** - Holds promises, queueMicrotask\n\n" +
				"Order of execution:\n1. Run all synchronous code\n2. Process all microtasks\n3. Process one task from the task queue\n4. Repeat",
			DeckID:           "deck-1",
			NextDueDate:      rel(-2),
			LastReviewedDate: relPtr(-7),
			LastScore:        score(domain.Medium),
			CreatedAt:        date(2025, 1, 4),
			UpdatedAt:        date(2025, 1, 15),
		},
		{
			ID:    "card-4",
			Title: "Generic Types in TypeScript",
			Content: "**Generics** allow you to write reusable code that works with multiple types.\n\n" +
				"```typescript\nfunction identity<T>(arg: T): T {\n  return arg;\n}\n\n// Usage\nidentity<string>(\"hello\");\nidentity(42); // Type inferred as number\n```\n\n" +
				"Common patterns:\n- `Array<T>` or `T[]`\n- `Promise<T>`\n- `Record<K, V>`",
			DeckID:           "deck-4",
			NextDueDate:      rel(-1),
			LastReviewedDate: relPtr(-5),
			LastScore:        score(domain.Easy),
			CreatedAt:        date(2025, 1, 10),
			UpdatedAt:        date(2025, 1, 17),
		},
		{
			ID:    "card-5",
			Title: "useEffect Hook",
			Content: "`useEffect` lets you perform side effects in functional components.\n\n" +
				"```tsx\nuseEffect(() => {\n  // Effect code runs after render\n  document.title = `Count: ${count}`;\n\n  return () => {\n    // Cleanup function (optional)\n  };\n}, [count]); // Dependency array\n```\n\n" +
				"Rules:\n- Empty `[]` = run once on mount\n- No array = run on every render\n- With deps = run when deps change",
			DeckID:           "deck-2",
			NextDueDate:      rel(1),
			LastReviewedDate: relPtr(-2),
			LastScore:        score(domain.Perfect),
			CreatedAt:        date(2025, 1, 7),
			UpdatedAt:        date(2025, 1, 20),
		},
		{
			ID:    "card-6",
			Title: "Union Types",
			Content: "A **union type** allows a value to be one of several types.\n\n" +
				"```typescript\ntype Status = \"pending\" | \"success\" | \"error\";\n\nfunction handleStatus(status: Status) {\n  switch (status) {\n    case \"pending\":\n      return \"Loading...\";\n    case \"success\":\n      return \"Done!\";\n    case \"error\":\n      return \"Failed\";\n  }\n}\n```",
			DeckID:           "deck-3",
			NextDueDate:      rel(1),
			LastReviewedDate: relPtr(-4),
			LastScore:        score(domain.Easy),
			CreatedAt:        date(2025, 1, 8),
			UpdatedAt:        date(2025, 1, 18),
		},
		{
			ID:    "card-7",
			Title: "Python List Comprehension",
			Content: "**List comprehensions** provide a concise way to create lists.\n\n" +
				"```python\n# Basic syntax\nsquares = [x**2 for x in range(10)]\n\n# With condition\nevens = [x for x in range(20) if x % 2 == 0]\n\n# Nested\nmatrix = [[i*j for j in range(3)] for i in range(3)]\n```",
			DeckID:           "deck-1",
			NextDueDate:      rel(3),
			LastReviewedDate: relPtr(-1),
			LastScore:        score(domain.Perfect),
			CreatedAt:        date(2025, 1, 12),
			UpdatedAt:        date(2025, 1, 21),
		},
		{
			ID:    "card-8",
			Title: "Promises vs Async/Await",
			Content: "Both handle asynchronous operations, but with different syntax.\n\n" +
				"**Promises:**\n```javascript\nfetch(url)\n  .then(res => res.json())\n  .then(data => console.log(data))\n  .catch(err => console.error(err));\n```\n\n" +
				"**Async/Await:**\n```javascript\nasync function getData() {\n  try {\n    const res = await fetch(url);\n    const data = await res.json();\n    console.log(data);\n  } catch (err) {\n    console.error(err);\n  }\n}\n```",
			DeckID:           "deck-1",
			NextDueDate:      rel(5),
			LastReviewedDate: relPtr(-3),
			LastScore:        score(domain.Easy),
			CreatedAt:        date(2025, 1, 9),
			UpdatedAt:        date(2025, 1, 19),
		},
		{
			ID:    "card-9",
			Title: "Context API",
			Content: "React **Context** provides a way to pass data through the component tree without prop drilling.\n\n" +
				"```tsx\n// Create context\nconst ThemeContext = createContext(\"light\");\n\n// Provider\n<ThemeContext.Provider value=\"dark\">\n  <App />\n</ThemeContext.Provider>\n\n// Consumer (hook)\nconst theme = useContext(ThemeContext);\n```\n\n" +
				"Best for:\n- Theme, locale, auth state\n- Data needed by many components at different levels",
			DeckID:      "deck-2",
			NextDueDate: rel(7),
			CreatedAt:   date(2025, 1, 15),
			UpdatedAt:   date(2025, 1, 15),
		},
		{
			ID:    "card-10",
			Title: "Type Guards",
			Content: "**Type guards** narrow down the type within a conditional block.\n\n" +
				"```typescript\nfunction isString(value: unknown): value is string {\n  return typeof value === \"string\";\n}\n\nfunction process(value: string | number) {\n  if (isString(value)) {\n    // TypeScript knows value is string here\n    return value.toUpperCase();\n  }\n  // value is number here\n  return value.toFixed(2);\n}\n```\n\n" +
				"Built-in guards: `typeof`, `instanceof`, `in`",
			DeckID:           "deck-4",
			NextDueDate:      rel(4),
			LastReviewedDate: relPtr(-2),
			LastScore:        score(domain.Medium),
			CreatedAt:        date(2025, 1, 11),
			UpdatedAt:        date(2025, 1, 20),
		},
	}

	return decks, cards
}
